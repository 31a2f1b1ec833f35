// Package extract recovers numeric metrics from the free-form text ffmpeg
// writes to its diagnostic stream.
//
// Each metric family is parsed through an ordered strategy list: an anchored
// structured pattern first, then weaker repeated-occurrence patterns where
// the last parsable match wins, since the tool refines values as it
// processes. A capture that fails numeric parsing counts as no match and
// falls through to the next strategy. High-pass band extraction never fails:
// output with no reading at all means the band is silent and yields
// SilenceFloorDb.
package extract
