// Package tileurl parses tile request URLs of the form .../<layer>/<zoom>/<x>/<y>.<ext>
package tileurl

import (
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdok/tmstiler/tiler"
)

var ErrInvalidTileURL = errors.New("invalid tile url")

// Request is the tile addressed by a URL.
type Request struct {
	Layer  string `json:"layer"`
	Zoom   int    `json:"zoom"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Format string `json:"format"`
}

// Parse extracts layer name, zoom, x, y and image format from a url like
// http://www.someserver.com/partofurl/layername/zoom/x/y.png
func Parse(rawURL string) (Request, error) {
	var req Request
	u, err := url.Parse(rawURL)
	if err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidTileURL, err)
	}
	parts := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	if len(parts) < 4 {
		return req, fmt.Errorf(`%w: path "%s" has less than 4 segments`, ErrInvalidTileURL, u.Path)
	}
	parts = parts[len(parts)-4:]

	req.Layer = parts[0]
	if req.Layer == "" {
		return req, fmt.Errorf(`%w: empty layer name in "%s"`, ErrInvalidTileURL, u.Path)
	}
	yPart, format, found := strings.Cut(parts[3], ".")
	if !found || format == "" {
		return req, fmt.Errorf(`%w: "%s" has no image format extension`, ErrInvalidTileURL, parts[3])
	}
	req.Format = format

	ints := []*int{&req.Zoom, &req.X, &req.Y}
	for i, s := range []string{parts[1], parts[2], yPart} {
		*ints[i], err = strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf(`%w: "%s" is not an integer`, ErrInvalidTileURL, s)
		}
	}
	return req, nil
}

// Tile returns the TMS tile address of the request.
func (r Request) Tile() tiler.Tile {
	return tiler.Tile{Zoom: r.Zoom, X: r.X, Y: r.Y}
}

// MimeType returns the mime type belonging to the format extension, or an empty string when unknown.
func (r Request) MimeType() string {
	mimeType := mime.TypeByExtension("." + strings.ToLower(r.Format))
	if mimeType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return mimeType
	}
	return mediaType
}

func (r Request) String() string {
	return fmt.Sprintf("%s/%d/%d/%d.%s", r.Layer, r.Zoom, r.X, r.Y, r.Format)
}
