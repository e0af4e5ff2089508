package imagekey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	prefix    = "cam"
	separator = "image_"
	extension = ".png"
)

var keyPattern = regexp.MustCompile(`^cam([A-Za-z0-9]+)image_([0-9]+)$`)

// Key identifies one image in a run by device label and round sequence.
type Key struct {
	Label    string
	Sequence int
}

// New validates and builds a key.
func New(label string, sequence int) (Key, error) {
	k := Key{Label: label, Sequence: sequence}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Validate rejects labels that would make the encoding ambiguous.
func (k Key) Validate() error {
	if k.Sequence < 1 {
		return fmt.Errorf("image key sequence must be positive, got %d", k.Sequence)
	}
	if k.Label == "" {
		return fmt.Errorf("image key label is empty")
	}
	for _, r := range k.Label {
		if !isAlnum(r) {
			return fmt.Errorf("image key label %q must be alphanumeric", k.Label)
		}
	}
	return nil
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// String encodes the key; Parse inverts it exactly.
func (k Key) String() string {
	return prefix + k.Label + separator + strconv.Itoa(k.Sequence)
}

// Parse decodes an encoded key. A label may itself contain the literal
// "image", so the last separator wins.
func Parse(value string) (Key, error) {
	match := keyPattern.FindStringSubmatch(value)
	if match == nil {
		return Key{}, fmt.Errorf("malformed image key %q", value)
	}
	body := strings.TrimPrefix(value, prefix)
	idx := strings.LastIndex(body, separator)
	label, digits := body[:idx], body[idx+len(separator):]
	if label == "" {
		return Key{}, fmt.Errorf("malformed image key %q", value)
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq < 1 {
		return Key{}, fmt.Errorf("malformed image key %q: bad sequence", value)
	}
	if strconv.Itoa(seq) != digits {
		return Key{}, fmt.Errorf("malformed image key %q: sequence must not be padded", value)
	}
	return Key{Label: label, Sequence: seq}, nil
}

// FileName returns the PNG file name for the key, with the sequence
// left-padded with zeros to width digits.
func (k Key) FileName(width int) string {
	return fmt.Sprintf("%s%s%s%0*d%s", prefix, k.Label, separator, width, k.Sequence, extension)
}

// PadWidth is the digit width used for file names in a set holding images
// images from cameras cameras: the number of digits in images/cameras.
func PadWidth(images, cameras int) int {
	if images <= 0 || cameras <= 0 {
		return 1
	}
	rounds := images / cameras
	if rounds < 1 {
		rounds = 1
	}
	return len(strconv.Itoa(rounds))
}

// Less orders keys by label then sequence.
func Less(a, b Key) bool {
	if a.Label != b.Label {
		return a.Label < b.Label
	}
	return a.Sequence < b.Sequence
}
