package parser

import "fjacquet/purchase-ledger/internal/logging"

// BaseParser carries the logger shared by components that embed it.
type BaseParser struct {
	logger logging.Logger
}

// NewBaseParser returns a BaseParser; a nil logger gets the default one.
func NewBaseParser(logger logging.Logger) BaseParser {
	return BaseParser{logger: logging.OrDefault(logger)}
}

func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}
