package view

import (
	"bytes"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"pestsim/src/sim"
)

const (
	recorderCellSize  = 8
	recorderFrameRate = 4
	recorderQuality   = 90
)

//Recorder is a viewer which writes one MJPEG video frame per completed step
//register it before the run and call Close once the run has finished
type Recorder struct {
	s        sim.Simulation
	writer   mjpeg.AviWriter
	lastStep int
	err      error
}

//NewRecorder creates the AVI writer for a simulation with the given dimensions
func NewRecorder(path string, width, height int) (*Recorder, error) {
	w, err := mjpeg.New(path, int32(width*recorderCellSize), int32(height*recorderCellSize), recorderFrameRate)
	if err != nil {
		return nil, err
	}
	return &Recorder{writer: w, lastStep: -1}, nil
}

func (r *Recorder) Register(o *sim.Outbreak) {
	r.s = o
}

func (r *Recorder) Start() {}

//Refresh captures a frame when a new step has completed
//older refreshes of the same step are skipped
func (r *Recorder) Refresh() {
	if r.err != nil {
		return
	}
	st := r.s.Status()
	if st.StepNum == r.lastStep {
		return
	}
	r.lastStep = st.StepNum

	o := r.s.Options()
	img := RenderFrame(r.s.Agents(), o.Width, o.Height, recorderCellSize, st.StepNum)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: recorderQuality}); err != nil {
		r.err = err
		return
	}
	r.err = r.writer.AddFrame(buf.Bytes())
}

//Close finalizes the video file and returns the first error seen while recording
func (r *Recorder) Close() error {
	if err := r.writer.Close(); r.err == nil {
		r.err = err
	}
	return r.err
}
