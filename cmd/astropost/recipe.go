package main

import(
	"context"
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/equinoxlab/astropost/pkg/ecolor"
	"github.com/equinoxlab/astropost/pkg/editor"
	"github.com/equinoxlab/astropost/pkg/ehistory"
	"github.com/equinoxlab/astropost/pkg/eimage"
	"github.com/equinoxlab/astropost/pkg/estretch"
	"github.com/equinoxlab/astropost/pkg/pixelmath"
)

// A Recipe is an ordered list of operations to run against the loaded
// image. Each op pushes one labeled snapshot onto the history; no-op
// stretches (identity parameters) are skipped.
type Recipe struct {
	Operations []Op `yaml:"operations"`
}

// Op is the union of all operation parameters; which fields matter
// depends on Op. Unset fields take their zero value, so ops with
// meaningful defaults (channel, method, factors) fill them in.
type Op struct {
	Op      string `yaml:"op"`
	Channel string `yaml:"channel"`

	Shadow    float64 `yaml:"shadow"`
	Highlight float64 `yaml:"highlight"`
	Midtone   float64 `yaml:"midtone"`
	Stretch   float64 `yaml:"stretch"`

	LogD1   float64 `yaml:"logd1"`
	B       float64 `yaml:"b"`
	SYP     float64 `yaml:"syp"`
	SPP     float64 `yaml:"spp"`
	HPP     float64 `yaml:"hpp"`
	Inverse bool    `yaml:"inverse"`

	Gamma float64    `yaml:"gamma"`
	From  [2]float64 `yaml:"from"`
	To    [2]float64 `yaml:"to"`

	Red   *float64 `yaml:"red"`
	Green *float64 `yaml:"green"`
	Blue  *float64 `yaml:"blue"`

	Ratio float64 `yaml:"ratio"`

	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
	Method string  `yaml:"method"`
	X      [2]int  `yaml:"x"`
	Y      [2]int  `yaml:"y"`

	Expression string `yaml:"expression"`

	Command string `yaml:"command"`
	Depth   int    `yaml:"depth"`
}

func LoadRecipe(filename string) (Recipe, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Recipe{}, fmt.Errorf("recipe read %s: %v", filename, err)
	}
	var r Recipe
	if err := yaml.Unmarshal(contents, &r); err != nil {
		return Recipe{}, fmt.Errorf("recipe parse %s: %v", filename, err)
	}
	return r, nil
}

// Strategy map from op name to implementation. Each entry mutates a
// working copy and returns the canonical label for the history, or
// label == "" to skip the push.
var opFuncs = map[string]func(op Op, work *eimage.Image) (label string, err error){
	"black_point":       opBlackPoint,
	"midtone":           opMidtone,
	"arcsinh":           opArcsinh,
	"ghs":               opGHS,
	"clip":              opClip,
	"auto_clip":         opAutoClip,
	"set_dynamic_range": opSetDynamicRange,
	"gamma":             opGamma,
	"gray_scale":        opGrayScale,
	"luma_weights":      opLumaWeights,
	"color_balance":     opColorBalance,
	"negative":          opNegative,
	"sharpen":           opSharpen,
	"remove_hot_pixels": opRemoveHotPixels,
	"normalize":         opNormalize,
	"crop":              opCrop,
	"resize":            opResize,
	"rescale":           opRescale,
}

// Apply runs the recipe in order on top of the history. Pixel math is
// handled here rather than in the strategy map because it needs the
// original image as well as the current one.
func (r Recipe)Apply(hist *ehistory.History) error {
	for i, op := range r.Operations {
		switch op.Op {
		case "pixel_math":
			if err := applyPixelMath(op, hist); err != nil {
				return fmt.Errorf("recipe op %d (%s): %v", i+1, op.Op, err)
			}
			continue
		case "edit":
			if err := applyEdit(op, hist); err != nil {
				return fmt.Errorf("recipe op %d (%s): %v", i+1, op.Op, err)
			}
			continue
		}

		f, ok := opFuncs[op.Op]
		if !ok {
			return fmt.Errorf("recipe op %d: unknown op %q", i+1, op.Op)
		}
		work := hist.Current().Clone()
		label, err := f(op, work)
		if err != nil {
			return fmt.Errorf("recipe op %d (%s): %v", i+1, op.Op, err)
		}
		if label == "" {
			log.Printf("Skipping no-op %s", op.Op)
			continue
		}
		log.Printf("Applied %s", label)
		hist.Push(label, work, nil)
	}
	return nil
}

func applyPixelMath(op Op, hist *ehistory.History) error {
	// IMG1 is the current image, IMG2 the original.
	out, err := pixelmath.Eval(op.Expression, []*eimage.Image{hist.Current(), hist.Original()})
	if err != nil {
		return err
	}
	label := fmt.Sprintf("PixelMath(%q)", op.Expression)
	log.Printf("Applied %s", label)
	hist.Push(label, out, nil)
	return nil
}

func applyEdit(op Op, hist *ehistory.History) error {
	depth := op.Depth
	if depth == 0 {
		depth = 16
	}
	out, err := editor.RoundTrip(context.Background(), hist.Current(), op.Command, depth)
	if err == editor.ErrNotModified {
		log.Printf("Editor made no change, skipping")
		return nil
	} else if err != nil {
		return err
	}
	label := fmt.Sprintf("Edit(%q)", op.Command)
	log.Printf("Applied %s", label)
	hist.Push(label, out, nil)
	return nil
}

func channelOf(op Op) (eimage.Channel, error) {
	if op.Channel == "" {
		return eimage.Luma, nil
	}
	return eimage.ParseChannel(op.Channel)
}

// stretchOp factors the common stretch plumbing: skip identities, run
// the stretch, return the label.
func stretchOp(work *eimage.Image, p estretch.Params, ch eimage.Channel, label string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.Identity() {
		return "", nil
	}
	if err := work.GeneralizedStretch(p, ch); err != nil {
		return "", err
	}
	return label, nil
}

func opBlackPoint(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	label := fmt.Sprintf("BlackPoint(%s = %.5f)", ch, op.Shadow)
	return stretchOp(work, estretch.Blackpoint{Shadow: op.Shadow}, ch, label)
}

func opMidtone(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	label := fmt.Sprintf("Midtone(%s = %.5f)", ch, op.Midtone)
	return stretchOp(work, estretch.Midtone{Midtone: op.Midtone}, ch, label)
}

func opArcsinh(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	label := fmt.Sprintf("Arcsinh(%s : shadow = %.5f, stretch = %.3f)", ch, op.Shadow, op.Stretch)
	return stretchOp(work, estretch.Arcsinh{Shadow: op.Shadow, Stretch: op.Stretch}, ch, label)
}

func opGHS(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	p := estretch.GHS{LogD1: op.LogD1, B: op.B, SYP: op.SYP, SPP: op.SPP, HPP: op.HPP, Inverse: op.Inverse}
	label := fmt.Sprintf("GHS(%s : logD1 = %.3f, B = %.3f, SYP = %.3f, SPP = %.3f, HPP = %.3f, inverse = %t)",
		ch, op.LogD1, op.B, op.SYP, op.SPP, op.HPP, op.Inverse)
	return stretchOp(work, p, ch, label)
}

func opClip(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	highlight := op.Highlight
	if highlight == 0 {
		highlight = 1
	}
	if err := work.ClipShadowsHighlights(op.Shadow, highlight, ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("ClipShadowsHighlights(%s : shadow = %.5f, highlight = %.5f)", ch, op.Shadow, highlight), nil
}

func opAutoClip(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	shadow, highlight := work.AutoClipBounds(ch)
	if err := work.ClipShadowsHighlights(shadow, highlight, ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("ClipShadowsHighlights(%s : shadow = %.5f, highlight = %.5f)", ch, shadow, highlight), nil
}

func opSetDynamicRange(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	to := op.To
	if to == [2]float64{} {
		to = [2]float64{0, 1}
	}
	if err := work.SetDynamicRange(op.From, to, ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("SetDynamicRange(%s : [%.5f, %.5f] => [%.5f, %.5f])",
		ch, op.From[0], op.From[1], to[0], to[1]), nil
}

func opGamma(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	if op.Gamma == 1 {
		return "", nil
	}
	if err := work.GammaCorrection(op.Gamma, ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("GammaCorrection(%s = %.5f)", ch, op.Gamma), nil
}

func opGrayScale(op Op, work *eimage.Image) (string, error) {
	ch := eimage.Luma
	if op.Channel != "" {
		parsed, err := eimage.ParseChannel(op.Channel)
		if err != nil {
			return "", err
		}
		ch = parsed
	}
	if err := work.GrayScale(ch); err != nil {
		return "", err
	}
	if ch == eimage.Luma {
		r, g, b := ecolor.LumaWeights()
		return fmt.Sprintf("GrayScale(%.2f, %.2f, %.2f)", r, g, b), nil
	}
	return fmt.Sprintf("GrayScale(%s)", ch), nil
}

func opLumaWeights(op Op, work *eimage.Image) (string, error) {
	r, g, b := ecolor.LumaWeights() // unset components keep their value
	if op.Red != nil {
		r = *op.Red
	}
	if op.Green != nil {
		g = *op.Green
	}
	if op.Blue != nil {
		b = *op.Blue
	}
	if err := ecolor.SetLumaWeights(r, g, b); err != nil {
		return "", err
	}
	// Changes how later luma-channel ops see the image; the image
	// itself is untouched, so nothing goes on the history.
	log.Printf("Luma weights set to (%.2f, %.2f, %.2f)", r, g, b)
	return "", nil
}

func opColorBalance(op Op, work *eimage.Image) (string, error) {
	factor := func(p *float64) float64 {
		if p == nil {
			return 1
		}
		return *p
	}
	r, g, b := factor(op.Red), factor(op.Green), factor(op.Blue)
	if r == 1 && g == 1 && b == 1 {
		return "", nil
	}
	if err := work.ColorBalance(r, g, b); err != nil {
		return "", err
	}
	return fmt.Sprintf("ColorBalance(R = %.2f, G = %.2f, B = %.2f)", r, g, b), nil
}

func opNegative(op Op, work *eimage.Image) (string, error) {
	work.Negative()
	return "Negative()", nil
}

func opSharpen(op Op, work *eimage.Image) (string, error) {
	work.Sharpen()
	return "Sharpen()", nil
}

func opRemoveHotPixels(op Op, work *eimage.Image) (string, error) {
	ch, err := channelOf(op)
	if err != nil {
		return "", err
	}
	if err := work.RemoveHotPixels(op.Ratio, ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("RemoveHotPixels(%s : ratio = %.2f)", ch, op.Ratio), nil
}

func opNormalize(op Op, work *eimage.Image) (string, error) {
	if !work.IsOutOfRange() {
		return "", nil
	}
	work.NormalizeOutOfRange()
	return "NormalizeOutOfRange()", nil
}

func opCrop(op Op, work *eimage.Image) (string, error) {
	if err := work.Crop(op.X[0], op.X[1], op.Y[0], op.Y[1]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Crop(x = [%d, %d], y = [%d, %d])", op.X[0], op.X[1], op.Y[0], op.Y[1]), nil
}

func opResize(op Op, work *eimage.Image) (string, error) {
	method := op.Method
	if method == "" {
		method = "lanczos"
	}
	if err := work.Resize(op.Width, op.Height, method); err != nil {
		return "", err
	}
	return fmt.Sprintf("Resize(%dx%d, %s)", op.Width, op.Height, method), nil
}

func opRescale(op Op, work *eimage.Image) (string, error) {
	method := op.Method
	if method == "" {
		method = "lanczos"
	}
	if err := work.Rescale(op.Scale, method); err != nil {
		return "", err
	}
	return fmt.Sprintf("Rescale(%.3f, %s)", op.Scale, method), nil
}
