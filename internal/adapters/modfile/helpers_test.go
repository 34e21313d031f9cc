package modfile_test

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

func appendChecksum(b, payload []byte) []byte {
	return binary.LittleEndian.AppendUint64(b, xxhash.Sum64(payload))
}
