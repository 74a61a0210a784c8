package netcdfcol

import (
	"os"

	"github.com/ctessum/cdf"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

func openNC(path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, vdcerr.New("netcdfcol.openNC", vdcerr.IOError, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, vdcerr.New("netcdfcol.openNC", vdcerr.FormatError, err)
	}
	return f, nc, nil
}
