// Package core provides the PDF object model used throughout pdfmin.
//
// PDF defines eight basic object types, all implemented as types satisfying the
// Object interface:
//
//   - [Null] - represents the PDF null object
//   - [Bool] - represents PDF boolean values (true/false)
//   - [Int] - represents PDF integers
//   - [Real] - represents PDF real numbers (floating point)
//   - [String] - represents PDF string objects (literal or hexadecimal)
//   - [Name] - represents PDF name objects (e.g., /Type, /XObject)
//   - [Array] - represents PDF arrays
//   - [Dict] - represents PDF dictionaries
//
// Additionally, [Stream] represents a PDF stream (dictionary + encoded
// payload), and [IndirectRef] identifies an object in a document's
// object table.
//
// # Stream Decoding
//
// [Stream.Decode] undoes the byte-oriented filters (FlateDecode,
// ASCIIHexDecode, ASCII85Decode, and chains of them). Image filters such as
// DCTDecode are left in place for an image codec to handle.
package core
