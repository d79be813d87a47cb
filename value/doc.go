// Package value defines the runtime's universal value model.
//
// Every edge of a node graph carries a TaggedValue: a closed sum over all
// types the runtime understands, from scalars up to vector and raster
// tables. Values are cheap to clone; composite payloads are held behind
// shared immutable references so copying a value never copies pixel data
// or geometry.
//
// The package also provides:
//
//   - TypeDescriptor: the static description of an edge type, used by the
//     compiler and registry for overload selection
//   - MemoHash: a value paired with its precomputed content hash, used as
//     a cache key throughout the memoization layer
//   - IORecord: the input/output pair captured by introspection taps
//
// Hashing is stable across processes: scalars hash by bit pattern (NaNs
// compare by bits) and composite values hash their canonical encoding
// with xxhash.
package value
