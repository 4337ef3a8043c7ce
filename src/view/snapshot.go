package view

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"pestsim/src/sim"
)

//cell colors for the frame renderer
var (
	emptyColor       = color.RGBA{255, 255, 255, 255}
	susceptibleColor = color.RGBA{0, 170, 0, 255}
	infectedColor    = color.RGBA{220, 30, 30, 255}
	removedColor     = color.RGBA{120, 120, 120, 255}
)

func stateColor(s sim.State) color.RGBA {
	switch s {
	case sim.Susceptible:
		return susceptibleColor
	case sim.Infected:
		return infectedColor
	default:
		return removedColor
	}
}

//RenderFrame paints the whole lattice into an RGBA image, cellSize pixels per
//cell, with a step label in the top left corner
func RenderFrame(agents []sim.Agent, width, height, cellSize, step int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width*cellSize, height*cellSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{emptyColor}, image.Point{}, draw.Src)

	for _, a := range agents {
		cell := image.Rect(a.X*cellSize, a.Y*cellSize, (a.X+1)*cellSize, (a.Y+1)*cellSize)
		draw.Draw(img, cell, &image.Uniform{stateColor(a.State)}, image.Point{}, draw.Src)
	}

	addLabel(img, 4, 14, fmt.Sprintf("step %d", step), color.RGBA{0, 0, 0, 255})
	return img
}

//addLabel draws a text label onto an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	point := fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y),
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(label)
}

//SavePNG writes the image into the named file
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
