// Package confidential builds confidential input tokens and decrypts
// confidential value handles.
//
// An input token is a ciphertext plus a signature binding it to one
// account, one contract, and one function selector; contracts reject tokens
// replayed against any other target. A value handle is a ciphertext read
// back from a contract.
//
// # Widths
//
// Scalars are limited to 64 bits. Wider values are split into 64-bit words
// and every word is encrypted and signed on its own:
//
//   - 128-bit values become a {High, Low} pair.
//   - 256-bit values become a {High, Low} pair of 128-bit halves.
//
// Word order is part of the wire format. Swapping High and Low decrypts to a
// different value rather than failing.
//
// # Strings
//
// Strings are UTF-8 encoded, split into 8-byte chunks with the final chunk
// zero-padded, and each chunk is encrypted as a scalar. Decryption strips
// every trailing zero byte, so a string that ends in NUL characters does not
// survive a round trip: "abc\x00" decrypts to "abc".
package confidential
