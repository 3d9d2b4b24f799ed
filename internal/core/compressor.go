package core

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// ToZipBytes archives the whole namespace. Directories become "name/"
// entries so empty ones survive; the root itself is not an entry.
func (ns *Namespace) ToZipBytes() ([]byte, error) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, child := range ns.root.children {
		if err := compressNode(zipWriter, child, ""); err != nil {
			zipWriter.Close()
			return nil, err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}

	return buf.Bytes(), nil
}

func compressNode(zw *zip.Writer, node *Node, basePath string) error {
	archivePath := path.Join(basePath, node.name)

	if node.IsFile() {
		return addFileToZip(zw, node.Content(), archivePath)
	}

	header := &zip.FileHeader{Name: archivePath + "/", Method: zip.Store}
	header.SetMode(fs.ModeDir | 0755)
	if _, err := zw.CreateHeader(header); err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", header.Name, err)
	}
	for _, child := range node.children {
		if err := compressNode(zw, child, archivePath); err != nil {
			return err
		}
	}
	return nil
}

func addFileToZip(zw *zip.Writer, content, archivePath string) error {
	header := &zip.FileHeader{Name: archivePath, Method: zip.Deflate}
	header.SetMode(0644)

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write file to zip: %w", err)
	}

	return nil
}

// ContentSize sums the length of every file's content. Hard links count
// once per name.
func (ns *Namespace) ContentSize() int64 {
	var total int64
	ns.Walk(func(node *Node, _ int) error {
		if node.IsFile() {
			total += int64(len(node.Content()))
		}
		return nil
	})
	return total
}
