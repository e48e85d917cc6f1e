package main

import (
	"fmt"
	"io"
	"strings"

	"gffstore/internal/format"
	"gffstore/internal/models"
)

// structured reports whether the selected output is json or yaml.
func (o *cliOptions) structured() bool {
	f, _ := format.ForName(o.output)
	return f != nil
}

func (o *cliOptions) writeStructured(w io.Writer, payload any) error {
	f, err := format.ForName(o.output)
	if err != nil {
		return err
	}
	return f.Write(w, payload)
}

func writePlain(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeMetadataDetail(w io.Writer, rec models.MetadataRecord) error {
	lines := []string{
		fmt.Sprintf("key: %s", rec.Key),
		fmt.Sprintf("file_id: %s", rec.FileID.Hex()),
		fmt.Sprintf("filename: %s", rec.Filename),
		fmt.Sprintf("md5: %s", rec.MD5),
		fmt.Sprintf("file_size: %d (%s)", rec.FileSize, format.HumanBytes(float64(rec.FileSize))),
	}
	return writePlain(w, "%s\n", strings.Join(lines, "\n"))
}
