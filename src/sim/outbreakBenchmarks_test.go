package sim

import (
	"fmt"
	"testing"
)

func newBenchOptions(size int) *Options {
	o := DefaultOutbreakOptions
	o.Interval = 0
	o.Width = size
	o.Height = size
	o.Density = 0.3
	o.Seed = 1
	return &o
}

func newStateCh() chan Status {
	return make(chan Status, 10)
}

func outbreakStep(u *Outbreak, b *testing.B) {
	stateCh := u.StateCh()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		u.Reset(int64(i) + 1)
		<-stateCh //wait for the reseed
		b.StartTimer()
		u.Step()
		for {
			st := <-stateCh
			if st.RunningMode == RunningStateManual || st.RunningMode == RunningStateFinished {
				break
			}
		}
	}
	u.Close()
	close(stateCh)
}

func outbreakRun(u *Outbreak, b *testing.B) {
	stateCh := u.StateCh()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		u.Reset(int64(i) + 1)
		<-stateCh //wait for the reseed
		b.StartTimer()
		u.Run()
		for {
			st := <-stateCh
			if st.RunningMode == RunningStateFinished {
				break
			}
		}
	}
	u.Close()
	close(stateCh)
}

func Benchmark_Step(b *testing.B) {
	for _, size := range []int{50, 100, 200} {
		b.Run(fmt.Sprintf("%vx%v", size, size), func(b *testing.B) {
			u, err := NewOutbreak(newBenchOptions(size), newStateCh())
			if err != nil {
				b.Fatal(err)
			}
			outbreakStep(u, b)
		})
	}
}

func Benchmark_Outbreak(b *testing.B) {
	for _, size := range []int{50, 100, 200} {
		b.Run(fmt.Sprintf("%vx%v", size, size), func(b *testing.B) {
			u, err := NewOutbreak(newBenchOptions(size), newStateCh())
			if err != nil {
				b.Fatal(err)
			}
			outbreakRun(u, b)
		})
	}
}
