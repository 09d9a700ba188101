package models

import "errors"

// Builder and validation errors.
var (
	ErrMissingID       = errors.New("purchase id is empty")
	ErrMissingProvider = errors.New("provider id is empty")
	ErrMissingItemID   = errors.New("provider item id is empty")
	ErrMissingTitle    = errors.New("title is empty")
	ErrNegativePrice   = errors.New("price is negative")
	ErrMissingCurrency = errors.New("currency is empty")
)

// RawData keys set by the mappers themselves.
const (
	RawDateFallback = "dateFallback"
	RawQuantity     = "quantity"
	RawStatus       = "status"
	RawOrderID      = "orderId"
	RawSeller       = "seller"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionExportFile = 0644
)
