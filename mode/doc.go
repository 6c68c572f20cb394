// Package mode implements the nybble-packed descriptors that travel with every
// envelope blob and record which algorithms produced it.
//
// All modes share a two-slot header, version then flags, followed by their own
// fields:
//
//	SecurityMode    version flags
//	AsymKeyMode     version flags keyType cipherDigest
//	HashMode        version flags prime alternate secret cipherDigest switchAdjust finalAdjust
//	EncryptionMode  version flags steps type[0] ... type[steps-1]
//
// Each layout is an explicit nybble.Schema. Decoding validates the version,
// every catalog id and every range before a mode is returned, so a decoded mode
// is always usable.
package mode
