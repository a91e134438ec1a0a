package printing

import (
	"fmt"

	"github.com/angelmondragon/kimipos-backend/pkg/config"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// NewSubmitter builds the submitter selected by the print mode.
func NewSubmitter(cfg config.PrintingConfig, logg *logger.Logger) (Submitter, error) {
	switch cfg.Mode {
	case config.PrintModeGateway:
		s, err := NewGatewaySubmitter(cfg.GatewayURL, WithCharWidth(cfg.CharWidth))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.PrintModeESCPOS:
		s, err := NewESCPOSGatewaySubmitter(cfg.GatewayURL, WithCharWidth(cfg.CharWidth))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.PrintModeNetwork:
		s, err := NewNetworkSubmitter(cfg.Addresses, cfg.CharWidth)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.PrintModeNone:
		return NewNullSubmitter(logg), nil
	default:
		return nil, fmt.Errorf("unsupported print mode %q", cfg.Mode)
	}
}
