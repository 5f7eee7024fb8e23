package bytecode

// Program is a compiled instruction stream, ready to run on a VM or to be
// framed into the on-disk file format by WriteFile.
type Program struct {
	Code []byte
}
