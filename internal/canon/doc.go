// Package canon implements the canonical serialization and content-addressing
// layer used for template identity.
//
// A Value is a constrained JSON-like tree: null, bool, number, string, list,
// or map with unique string keys. Marshal produces the unique canonical byte
// form of a Value:
//
//   - Map keys sorted byte-wise ascending at every nesting level
//   - Compact output, no inter-token whitespace
//   - Numbers in shortest round-trip fixed-point decimal, never scientific
//   - -0 normalizes to 0; NaN and Infinity are rejected
//   - UTF-8, no BOM
//
// Hash is SHA-256 over the canonical bytes, rendered as 64 lowercase hex
// characters. It is computed exactly once per logical template, at creation,
// by the template's creator. Nothing in the read path may call it.
package canon
