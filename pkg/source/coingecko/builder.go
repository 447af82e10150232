package coingecko

import (
	"net/http"

	"coinflow/pkg/source"
)

func init() {
	source.RegisterProvider("coingecko", func(name string, cfg *source.ProviderConfig) (source.Provider, error) {
		opts := []Option{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.VsCurrency != "" {
			opts = append(opts, WithVsCurrency(cfg.VsCurrency))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewClient(opts...), nil
	})
}
