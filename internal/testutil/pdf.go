package testutil

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// BuildPDF assembles a minimal PDF whose pages each draw one Flate-encoded
// DeviceGray image covering the whole page.
func BuildPDF(pages ...image.Image) ([]byte, error) {
	if len(pages) == 0 {
		return nil, errors.New("no pages")
	}

	var buf bytes.Buffer
	offsets := []int{0}
	obj := func(body []byte) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n", len(offsets)-1)
		buf.Write(body)
		buf.WriteString("\nendobj\n")
	}

	buf.WriteString("%PDF-1.4\n")

	kids := &bytes.Buffer{}
	for i := range pages {
		fmt.Fprintf(kids, "%d 0 R ", 3+i*3)
	}
	obj([]byte("<< /Type /Catalog /Pages 2 0 R >>"))
	obj(fmt.Appendf(nil, "<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages)))

	for i, img := range pages {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		contentObj, imageObj := 4+i*3, 5+i*3

		obj(fmt.Appendf(nil,
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject << /Im1 %d 0 R >> >> /Contents %d 0 R >>",
			w, h, imageObj, contentObj))

		content := fmt.Sprintf("q %d 0 0 %d 0 0 cm /Im1 Do Q", w, h)
		obj(fmt.Appendf(nil, "<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

		pixels, err := deflateGray(img)
		if err != nil {
			return nil, err
		}
		var imgObj bytes.Buffer
		fmt.Fprintf(&imgObj,
			"<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode /Length %d >>\nstream\n",
			w, h, len(pixels))
		imgObj.Write(pixels)
		imgObj.WriteString("\nendstream")
		obj(imgObj.Bytes())
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)
	return buf.Bytes(), nil
}

func deflateGray(img image.Image) ([]byte, error) {
	b := img.Bounds()
	raw := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			raw = append(raw, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
