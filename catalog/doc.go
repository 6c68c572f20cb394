// Package catalog enumerates the algorithms the envelope layer may choose from.
//
// There are three closed sets, each with stable numeric ids that fit in a
// single nybble and are never reused:
//
//   - AsymKeyType: key-pair algorithms (RSA and elliptic curves)
//   - SymmetricKeyType: cascade stage ciphers
//   - DigestType: hash functions used for MACs and key derivation
//
// Every behavior of a variant (name, key length, curve, digest size) is an
// exhaustive switch on the variant. Lookups by id scan the fixed variant list.
//
// Sample draws a uniformly random ordered subset without replacement using a
// partial Fisher–Yates shuffle over a caller-supplied cryptographic source.
package catalog
