package tags

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"github.com/mewkiz/flac"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
)

// readFLAC takes the vorbis comments from go-flac and the duration from
// the STREAMINFO block via mewkiz/flac. Either half may fail alone.
func readFLAC(path string) (tfile.Tags, error) {
	var tags tfile.Tags
	var errs []error

	if err := readVorbisComments(path, &tags); err != nil {
		errs = append(errs, err)
	}

	d, err := flacDuration(path)
	if err != nil {
		errs = append(errs, err)
	}
	tags.Duration = d

	return tags, errors.Join(errs...)
}

func readVorbisComments(path string, tags *tfile.Tags) error {
	r, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("parse flac metadata %s: %w", path, err)
	}
	defer r.Close()

	f, err := goflac.ParseMetadata(r)
	if err != nil {
		return fmt.Errorf("parse flac metadata %s: %w", path, err)
	}

	for _, block := range f.Meta {
		if block.Type != goflac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return fmt.Errorf("parse vorbis comments %s: %w", path, err)
		}

		tags.Artist = preferArtist(first(cmt, flacvorbis.FIELD_ARTIST), first(cmt, "ALBUMARTIST"))
		tags.Album = first(cmt, flacvorbis.FIELD_ALBUM)
		tags.Title = first(cmt, flacvorbis.FIELD_TITLE)
		tags.Year = parseYear(first(cmt, flacvorbis.FIELD_DATE))
		return nil
	}
	return nil
}

func first(cmt *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	vals, err := cmt.Get(field)
	if err != nil || len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func flacDuration(path string) (tfile.Duration, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return tfile.Unknown, fmt.Errorf("open flac stream %s: %w", path, err)
	}
	defer stream.Close()

	// NSamples is zero when the encoder didn't know the length.
	if stream.Info.NSamples == 0 || stream.Info.SampleRate == 0 {
		return tfile.Unknown, nil
	}
	return tfile.Known(float64(stream.Info.NSamples) / float64(stream.Info.SampleRate)), nil
}
