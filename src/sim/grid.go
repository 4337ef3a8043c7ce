package sim

import (
	"errors"
	"fmt"
)

var (
	//ErrOccupiedCell indicates an attempt to place an agent on a cell which already holds one
	ErrOccupiedCell = errors.New("cell is already occupied")
	//ErrOutOfBounds indicates an attempt to place an agent outside the grid rectangle
	ErrOutOfBounds = errors.New("position is outside the grid")
)

//Grid is the spatial index over a bounded rectangle
//each cell holds at most one agent, a nil cell is empty
//the grid is the single source of truth for occupancy
type Grid struct {
	Width  int
	Height int
	cells  [][]*Agent
}

//NewGrid allocates an empty grid with fixed dimensions
func NewGrid(width int, height int) *Grid {
	g := Grid{Width: width, Height: height, cells: make([][]*Agent, height)}
	b := make([]*Agent, width*height)
	for i := range g.cells {
		start := width * i
		g.cells[i] = b[start : start+width : start+width]
	}
	return &g
}

//Contains reports whether the position lays inside the grid rectangle
func (g *Grid) Contains(x int, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

//At returns the agent occupying the cell, nil if the cell is empty or outside the grid
func (g *Grid) At(x int, y int) *Agent {
	if !g.Contains(x, y) {
		return nil
	}
	return g.cells[y][x]
}

//Place inserts the agent at position x, y
//placing on an occupied or out-of-bounds cell is an invariant violation
//and is surfaced immediately, never ignored
func (g *Grid) Place(a *Agent, x int, y int) error {
	if !g.Contains(x, y) {
		return fmt.Errorf("place agent %v at (%v,%v): %w", a.ID, x, y, ErrOutOfBounds)
	}
	if g.cells[y][x] != nil {
		return fmt.Errorf("place agent %v at (%v,%v): %w", a.ID, x, y, ErrOccupiedCell)
	}
	a.X = x
	a.Y = y
	g.cells[y][x] = a
	return nil
}

//Neighbors returns the occupied cells among the 8 cells adjacent to x, y
//positions outside the boundary are simply absent, no wraparound
func (g *Grid) Neighbors(x int, y int) []*Agent {
	neighbors := make([]*Agent, 0, 8)
	for i := -1; i < 2; i++ {
		for j := -1; j < 2; j++ {
			//skip my position
			if i == 0 && j == 0 {
				continue
			}
			nx := x + i
			ny := y + j
			//skip coordinates outside the grid
			if !g.Contains(nx, ny) {
				continue
			}
			if a := g.cells[ny][nx]; a != nil {
				neighbors = append(neighbors, a)
			}
		}
	}
	return neighbors
}
