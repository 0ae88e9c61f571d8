// Package l2frames owns Layer 2 (Frames) of the motion-vector data model.
//
// Responsibilities: grid geometry, per-frame motion vectors, the .mvs
// binary format (reader and writer), the bounded frame cache, and
// resampling frames onto coarser grids. Reference action timelines live
// here too so that training (L4) and synthesis (L5) share one type.
// Key types: Layout, Frame, SimplifiedFrame, FrameStore, Writer, Action.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2frames
