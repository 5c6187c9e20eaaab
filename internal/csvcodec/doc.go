// Package csvcodec encodes and decodes the CSV files exchanged with catalog
// operators.
//
// The format is plain comma-separated text with a UTF-8 byte-order mark so
// spreadsheet applications detect the encoding. Scalar cells are quoted only
// when they contain a comma, a double quote, or a line break. Complex cells
// hold a list of small flat objects, each JSON-encoded, joined by a pipe:
//
//	{"noteId":"n1"}|{"noteId":"n2"}
//
// [ParseCSV] is the inverse of [EscapeCSV] and [JoinRow]: quoted fields come
// back byte for byte, unquoted fields are trimmed.
package csvcodec
