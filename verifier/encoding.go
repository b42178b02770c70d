package verifier

import "encoding/binary"

// EncodingVersion prefixes every encoded field set so the layout can evolve
// without colliding with older digests.
const EncodingVersion byte = 0x01

// EncodeFields returns the canonical byte string hashed into Block.Hash.
// Every variable-length field is preceded by its 8-byte big-endian length,
// so no two distinct field tuples share an encoding.
func EncodeFields(index uint64, timestamp int64, data, prevHash string) []byte {
	buf := make([]byte, 0, 1+8+8+8+len(data)+8+len(prevHash))
	buf = append(buf, EncodingVersion)
	buf = binary.BigEndian.AppendUint64(buf, index)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	buf = appendField(buf, data)
	buf = appendField(buf, prevHash)
	return buf
}

func appendField(buf []byte, field string) []byte {
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(field)))
	return append(buf, field...)
}
