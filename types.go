package pushhub

import "github.com/quantflow/pushhub/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `pushhub`
// package, while still providing a convenient `pushhub.Result`,
// `pushhub.Logger`, etc. for users.
type (
	Result         = types.Result
	ResultKind     = types.ResultKind
	MasterType     = types.MasterType
	ConversionMode = types.ConversionMode
	ViewportSpec   = types.ViewportSpec
)

// Re-export interfaces from the types subpackage for convenience.
type (
	PendingRequest   = types.PendingRequest
	ChangeListener   = types.ChangeListener
	ChangeSource     = types.ChangeSource
	AnalyticsEngine  = types.AnalyticsEngine
	Viewport         = types.Viewport
	ViewportListener = types.ViewportListener
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
)

// Re-export ResultKind constants from the types subpackage.
const (
	ResultUpdates    = types.ResultUpdates
	ResultTimeout    = types.ResultTimeout
	ResultClosed     = types.ResultClosed
	ResultSuperseded = types.ResultSuperseded
)

// Re-export ConversionMode constants from the types subpackage.
const (
	ModeSummary = types.ModeSummary
	ModeFull    = types.ModeFull
)
