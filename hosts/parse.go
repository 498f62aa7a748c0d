package hosts

import (
	"bufio"
	"io"
	"net/netip"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrMalformed is returned when a hosts file cannot be read at all.
// Bad lines never produce it.
var ErrMalformed = errors.New("hosts file unreadable")

const maxLineSize = 1 << 20

// Table is the ordered content of one hosts file.
type Table struct {
	Records []Record
}

// ParseFile reads and parses the hosts file at path.
func ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "open %s: %v", path, err)
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse %s", path)
	}
	return t, nil
}

// Parse builds a Table from hosts file text. Lines longer than maxLineSize
// are skipped like any other bad line; only read errors fail the parse.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{}
	reader := bufio.NewReaderSize(r, 4096)
	var line []byte
	lineno := 0
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "line %d: %v", lineno+1, err)
		}
		line = append(line, chunk...)
		if isPrefix {
			if len(line) > maxLineSize {
				lineno++
				log.Debugf("skip hosts line %d longer than %d bytes", lineno, maxLineSize)
				if err := discardLine(reader); err != nil {
					return nil, errors.Wrapf(ErrMalformed, "line %d: %v", lineno, err)
				}
				line = line[:0]
			}
			continue
		}
		lineno++
		if rec, ok := parseLine(string(line)); ok {
			t.Records = append(t.Records, rec)
		}
		line = line[:0]
	}
	return t, nil
}

// discardLine drops the rest of the current line.
func discardLine(reader *bufio.Reader) error {
	for {
		_, isPrefix, err := reader.ReadLine()
		if err == io.EOF || (err == nil && !isPrefix) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func parseLine(line string) (Record, bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Record{}, false
	}
	addr, err := netip.ParseAddr(fields[0])
	if err != nil {
		log.Debugf("skip hosts line with bad address %q", fields[0])
		return Record{}, false
	}
	rec := Record{
		Addr: addr.WithZone(""),
		Name: fields[1],
	}
	if len(fields) > 2 {
		rec.Aliases = append([]string(nil), fields[2:]...)
	}
	return rec, true
}
