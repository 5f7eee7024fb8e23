package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magic        uint32 = 193687
	fileVersion  uint32 = 1
	headerLength        = 12
)

// BadStreamError reports that a bytecode stream could not be read back:
// too short for a header, a bad magic number, or an unsupported version.
type BadStreamError struct {
	Message string
}

func CreateBadStreamError(message string) BadStreamError {
	return BadStreamError{Message: message}
}

func (e BadStreamError) Error() string {
	return fmt.Sprintf("💥 BadStreamError: %s", e.Message)
}

// WriteFile writes body framed by the 12-byte header described in
// spec.md §6: magic, version, and total stream length, all big-endian.
func WriteFile(w io.Writer, body []byte) error {
	var header [headerLength]byte
	binary.BigEndian.PutUint32(header[0:4], magic)
	binary.BigEndian.PutUint32(header[4:8], fileVersion)
	binary.BigEndian.PutUint32(header[8:12], uint32(headerLength+len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadFile reads a header-framed bytecode stream from r, validating the
// magic number and version, and returns the instruction body.
func ReadFile(r io.Reader) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, CreateBadStreamError(err.Error())
	}
	if len(all) < headerLength {
		return nil, CreateBadStreamError("stream shorter than the bytecode header")
	}
	gotMagic := binary.BigEndian.Uint32(all[0:4])
	if gotMagic != magic {
		return nil, CreateBadStreamError(fmt.Sprintf("bad magic number %d, want %d", gotMagic, magic))
	}
	gotVersion := binary.BigEndian.Uint32(all[4:8])
	if gotVersion != fileVersion {
		return nil, CreateBadStreamError(fmt.Sprintf("unsupported bytecode version %d", gotVersion))
	}
	size := binary.BigEndian.Uint32(all[8:12])
	if int(size) != len(all) {
		return nil, CreateBadStreamError(fmt.Sprintf("stream length %d does not match header size %d", len(all), size))
	}
	return all[headerLength:], nil
}
