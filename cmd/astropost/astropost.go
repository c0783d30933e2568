// astropost runs a post-processing recipe over an astrophotography
// image: load, lift off any telescope frame, apply the recipe's
// stretches and adjustments, composite the frame back, save alongside
// an operation log.
//
//	astropost -recipe recipe.yaml -o out.png in.tif
package main

import(
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/equinoxlab/astropost/pkg/eframe"
	"github.com/equinoxlab/astropost/pkg/ehistory"
	"github.com/equinoxlab/astropost/pkg/eimage"
	"github.com/equinoxlab/astropost/pkg/eio"
)

var(
	fRecipe      string
	fOutput      string
	fDepth       int
	fFrames      string
	fNoFrame     bool
	fStats       bool
	fPreview     string
	fPreviewSize int
)

func init() {
	flag.StringVar(&fRecipe, "recipe", "", "YAML recipe of operations to apply")
	flag.StringVar(&fOutput, "o", "", "output image (.png, .tif, .jpg, .hdr)")
	flag.IntVar(&fDepth, "depth", 16, "output color depth, 8 or 16 (ignored for .hdr)")
	flag.StringVar(&fFrames, "frames", "", "YAML file of extra telescope frame profiles")
	flag.BoolVar(&fNoFrame, "noframe", false, "skip frame detection")
	flag.BoolVar(&fStats, "stats", false, "print per channel statistics before and after")
	flag.StringVar(&fPreview, "preview", "", "also write a small preview image here")
	flag.IntVar(&fPreviewSize, "previewsize", 512, "preview max dimension in pixels")
}

func main() {
	flag.Parse()
	log.Printf("astropost starting\n")

	if flag.NArg() != 1 {
		log.Fatal("usage: astropost [flags] <input image>")
	}
	input := flag.Arg(0)

	im, err := eio.Load(input)
	if err != nil {
		log.Fatal(err)
	}
	w, h := im.Size()
	log.Printf("Loaded %s (%dx%d, %v bit %v)", input, w, h, im.Meta["colordepth"], im.Meta["format"])

	if fStats {
		printStats("input", im)
	}

	// Process without the frame markings; they get composited back at
	// the end.
	frame := detectFrame(im)
	if frame != nil {
		if err := eframe.Remove(im, frame); err != nil {
			log.Fatal(err)
		}
	}
	hist := ehistory.New(im, frame)

	if fRecipe != "" {
		recipe, err := LoadRecipe(fRecipe)
		if err != nil {
			log.Fatal(err)
		}
		if err := recipe.Apply(hist); err != nil {
			log.Fatal(err)
		}
	}

	final := hist.Current().Clone()
	if frame != nil {
		fw, fh := frame.Size()
		cw, ch := final.Size()
		if fw == cw && fh == ch {
			if err := eframe.Restore(final, frame); err != nil {
				log.Fatal(err)
			}
		} else {
			log.Printf("Image was resized, not restoring the %dx%d frame", fw, fh)
		}
	}

	if fStats {
		printStats("output", final)
	}

	if fOutput != "" {
		if err := eio.Save(final, fOutput, fDepth); err != nil {
			log.Fatal(err)
		}
		log.Printf("Wrote %s", fOutput)
		if err := eio.WriteOpLog(fOutput, hist.Logs()); err != nil {
			log.Fatal(err)
		}
	}

	if fPreview != "" {
		if err := writePreview(final, fPreview, fPreviewSize); err != nil {
			log.Fatal(err)
		}
	}
}

func detectFrame(im *eimage.Image) *eimage.Image {
	if fNoFrame {
		return nil
	}
	profiles := eframe.DefaultProfiles
	if fFrames != "" {
		extra, err := eframe.LoadProfiles(fFrames)
		if err != nil {
			log.Fatal(err)
		}
		profiles = append(extra, profiles...)
	}
	p, err := eframe.Detect(im, profiles)
	if err == eframe.ErrNoFrame {
		return nil
	} else if err != nil {
		log.Fatal(err)
	}
	log.Printf("Detected frame: %s", p.Type)
	return eframe.Extract(im, p)
}

// writePreview quantizes to 8 bit and shrinks with nfnt/resize; a
// preview is a thumbnail, the float-exact resampling path would be
// wasted on it.
func writePreview(im *eimage.Image, filename string, maxDim int) error {
	w, h := im.Size()
	scale := float64(maxDim) / math.Max(float64(w), float64(h))

	if err := eio.Save(im, filename, 8); err != nil {
		return err
	}
	if scale >= 1 {
		log.Printf("Wrote preview %s", filename)
		return nil
	}

	full, err := loadStd(filename)
	if err != nil {
		return err
	}
	pw := int(math.Round(scale * float64(w)))
	ph := int(math.Round(scale * float64(h)))
	thumb := resize.Resize(uint(pw), uint(ph), full, resize.Lanczos3)
	if err := saveStd(thumb, filename); err != nil {
		return err
	}
	log.Printf("Wrote preview %s (%dx%d)", filename, pw, ph)
	return nil
}

func loadStd(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	img, _, err := image.Decode(reader)
	return img, err
}

func saveStd(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer writer.Close()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(writer, img)
	}
}

func printStats(tag string, im *eimage.Image) {
	stats := im.Statistics()
	for _, k := range eimage.StatKeys() {
		cs := stats[k]
		line := fmt.Sprintf("[%s] %-5s min=%.5f max=%.5f zero=%d out=%d",
			tag, cs.Name, cs.Minimum, cs.Maximum, cs.ZeroCount, cs.OutCount)
		if cs.Median != nil {
			line += fmt.Sprintf(" median=%.5f", *cs.Median)
		}
		log.Print(line)
	}
}
