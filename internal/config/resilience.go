package config

import (
	"time"

	"sheetwatch/internal/retry"
)

type ResilienceConfig struct {
	SheetRead   retry.Config
	ImportProbe retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	SheetRead: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
	ImportProbe: retry.Config{
		MaxRetries: 1,
		BaseDelay:  1 * time.Second,
		MaxDelay:   5 * time.Second,
		Timeout:    10 * time.Second,
	},
}
