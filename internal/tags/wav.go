package tags

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
)

var errNotWAV = errors.New("not a RIFF/WAVE file")

// readWAV walks the RIFF chunks for the fmt and data sizes, which give the
// duration, and the LIST/INFO chunk some rippers put tags into.
func readWAV(path string) (tfile.Tags, error) {
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return tfile.Tags{}, err
	}
	defer f.Close()

	var hdr [12]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return tfile.Tags{}, fmt.Errorf("read wav header %s: %w", path, err)
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return tfile.Tags{}, fmt.Errorf("%s: %w", path, errNotWAV)
	}

	var (
		tags     tfile.Tags
		byteRate uint32
		dataSize uint32
	)

	for {
		var ch [8]byte
		if _, err := io.ReadFull(f, ch[:]); err != nil {
			break
		}
		id := string(ch[0:4])
		size := binary.LittleEndian.Uint32(ch[4:8])
		// Chunks are padded to an even length.
		skip := int64(size) + int64(size&1)

		switch id {
		case "fmt ":
			if size < 16 {
				return tags, fmt.Errorf("%s: short fmt chunk", path)
			}
			var fmtChunk [16]byte
			if _, err := io.ReadFull(f, fmtChunk[:]); err != nil {
				return tags, fmt.Errorf("read fmt chunk %s: %w", path, err)
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			skip -= 16
		case "data":
			dataSize = size
		case "LIST":
			if size > 1<<20 {
				break
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(f, body); err != nil {
				return tags, fmt.Errorf("read LIST chunk %s: %w", path, err)
			}
			parseInfo(body, &tags)
			skip -= int64(size)
		}

		if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
			break
		}
	}

	if byteRate > 0 && dataSize > 0 {
		tags.Duration = tfile.Known(float64(dataSize) / float64(byteRate))
	}
	return tags, nil
}

// parseInfo fills tags from a LIST chunk of type INFO.
func parseInfo(body []byte, tags *tfile.Tags) {
	if len(body) < 4 || string(body[0:4]) != "INFO" {
		return
	}
	body = body[4:]

	for len(body) >= 8 {
		id := string(body[0:4])
		size := int(binary.LittleEndian.Uint32(body[4:8]))
		body = body[8:]
		if size > len(body) {
			return
		}
		val := strings.TrimSpace(string(bytes.TrimRight(body[:size], "\x00")))

		switch id {
		case "IART":
			tags.Artist = val
		case "INAM":
			tags.Title = val
		case "IPRD":
			tags.Album = val
		case "ICRD":
			tags.Year = parseYear(val)
		}

		size += size & 1
		if size > len(body) {
			return
		}
		body = body[size:]
	}
}
