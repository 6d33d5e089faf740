package cli

import (
	"os"

	"github.com/spf13/afero"
)

var osWriteFile = func(path string, b []byte, perm uint32) error {
	return afero.WriteFile(configFs, path, b, os.FileMode(perm))
}

func writeFile(path string, b []byte, perm uint32) error {
	return osWriteFile(path, b, perm)
}
