// Package settlement holds the driver settlement ledger: one Entry per
// accepted order with the snapshots, timestamps, durations, efficiency
// ratios and earnings used for driver payouts and performance views.
//
// Efficiency ratios are pointers. nil means unknown (no estimate or no
// duration) and must never be displayed as 0%.
package settlement
