package document

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/odvcencio/folio/pkg/repo"
)

const (
	documentsRoot = "documents"
	archivesRoot  = "archives"
)

const upperhex = "0123456789ABCDEF"

// ValidateID rejects identifiers that cannot name a document: the empty
// string and anything containing "/".
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", repo.ErrInvalidArgument)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: document id %q contains '/'", repo.ErrInvalidArgument, id)
	}
	return nil
}

// EscapeID percent-encodes id for use as one ref-name component.
// Letters, digits, '-', '_' and '.' are kept, except dots that would make
// an invalid ref name (leading, trailing, doubled, or a ".lock" suffix).
func EscapeID(id string) string {
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if keepByte(c) && !(c == '.' && unsafeDot(id, i)) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keepByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.':
		return true
	}
	return false
}

func unsafeDot(id string, i int) bool {
	switch {
	case i == 0, i == len(id)-1:
		return true
	case id[i+1] == '.', id[i-1] == '.':
		return true
	case id[i:] == ".lock":
		return true
	}
	return false
}

// UnescapeID reverses EscapeID.
func UnescapeID(escaped string) (string, error) {
	id, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repo.ErrInvalidArgument, err)
	}
	return id, nil
}

// BranchName returns the live branch of a document:
// documents/<type>/<escaped id>.
//
// Names match a plain percent-quoting of the id except where EscapeID
// encodes a dot: ids such as ".x", "x.", "a..b" or "x.lock" get branch
// names other stores that quote ids without that rule will not find.
func BranchName(typeName, id string) (string, error) {
	return branchName(documentsRoot, typeName, id)
}

// ArchiveBranchName returns the archive branch of a document:
// archives/<type>/<escaped id>.
func ArchiveBranchName(typeName, id string) (string, error) {
	return branchName(archivesRoot, typeName, id)
}

func branchName(root, typeName, id string) (string, error) {
	if err := validateTypeName(typeName); err != nil {
		return "", err
	}
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return root + "/" + typeName + "/" + EscapeID(id), nil
}

func validateTypeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty document type", repo.ErrInvalidArgument)
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") ||
		strings.Contains(name, "..") {
		return fmt.Errorf("%w: document type %q", repo.ErrInvalidArgument, name)
	}
	for i := 0; i < len(name); i++ {
		if !keepByte(name[i]) {
			return fmt.Errorf("%w: document type %q has character %q", repo.ErrInvalidArgument, name, name[i])
		}
	}
	return nil
}
