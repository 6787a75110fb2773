package acquire

import (
	"fmt"
	"io"

	"github.com/astrogo/fitsio"
)

// headerCards assembles the FITS cards echoing the acquisition parameters
// and the per-frame stage poses.
func (r *Result) headerCards() []fitsio.Card {
	p := r.Props
	bounds := p.AlphaBounds()
	cards := []fitsio.Card{
		{Name: "BZERO", Value: 32768},
		{Name: "BSCALE", Value: 1.0},
		{Name: "CAMERA", Value: p.CameraName(), Comment: "acquisition camera"},
		{Name: "ALPHBEG", Value: bounds[0], Comment: "first alpha bound, deg"},
		{Name: "ALPHEND", Value: bounds[len(bounds)-1], Comment: "last alpha bound, deg"},
		{Name: "ALPHSTEP", Value: p.AlphaStep(), Comment: "alpha step, deg"},
		{Name: "EXPTIME", Value: p.IntegrationTime().Seconds(), Comment: "integration time, s"},
		{Name: "SAMPLING", Value: string(p.Sampling()), Comment: "resolution class"},
		{Name: "TILTSPD", Value: p.TiltSpeed(), Comment: "stage speed, instrument units"},
	}
	for i, f := range r.Frames {
		cards = append(cards,
			fitsio.Card{Name: fmt.Sprintf("ALPHA%d", i), Value: f.CenterAlpha, Comment: "frame center alpha, deg"},
			fitsio.Card{Name: fmt.Sprintf("STAGX%d", i), Value: f.Position.X},
			fitsio.Card{Name: fmt.Sprintf("STAGY%d", i), Value: f.Position.Y},
			fitsio.Card{Name: fmt.Sprintf("STAGZ%d", i), Value: f.Position.Z},
			fitsio.Card{Name: fmt.Sprintf("BETA%d", i), Value: f.Position.Beta},
			fitsio.Card{Name: fmt.Sprintf("CRC%d", i), Value: int(f.Image.Checksum()), Comment: "frame payload CRC16"},
		)
	}
	return cards
}

// WriteFITS streams the acquisition result to w as a 16-bit FITS cube, one
// plane per frame, with the stage metadata in the header.
func WriteFITS(w io.Writer, res *Result) error {
	if len(res.Frames) == 0 {
		return ValidationError("no frames to write")
	}
	first := res.Frames[0].Image
	width, height := first.Width, first.Height
	nframes := len(res.Frames)

	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	dims := []int{width, height}
	if nframes > 1 {
		dims = append(dims, nframes)
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	if err := im.Header().Append(res.headerCards()...); err != nil {
		return err
	}

	ints := make([]int16, width*height*nframes)
	offset := 0
	for _, fr := range res.Frames {
		for idx, v := range fr.Image.Data {
			ints[offset+idx] = int16(int32(v) - 32768)
		}
		offset += len(fr.Image.Data)
	}
	if err := im.Write(&ints); err != nil {
		return err
	}
	return fits.Write(im)
}
