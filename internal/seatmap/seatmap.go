// Package seatmap derives the cabin grid shown on the seat-selection
// screen from the flat seat list served by the backend.
package seatmap

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
)

const (
	// RowWidth is the number of seats per cabin row.
	RowWidth = 6
	// aisleAfter splits each row into a left and a right group.
	aisleAfter = 3
)

// Cell is one seat position in the grid.
type Cell struct {
	Seat  models.Seat
	Label string
}

// Row is a single cabin row: up to three seats, an aisle, up to three more.
type Row struct {
	Number int
	Left   []Cell
	Right  []Cell
}

// Grid is the derived cabin layout.
type Grid struct {
	Rows []Row
}

// Sort orders seats ascending by numeric seat number, matching the order
// the grid expects. The input slice is not modified.
func Sort(seats []models.Seat) []models.Seat {
	sorted := make([]models.Seat, len(seats))
	copy(sorted, seats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number() < sorted[j].Number()
	})
	return sorted
}

// Build partitions an already-sorted seat sequence into rows of six with an
// aisle after the third seat. Deterministic, no side effects.
func Build(seats []models.Seat) Grid {
	chunks := lo.Chunk(seats, RowWidth)
	rows := make([]Row, 0, len(chunks))
	for i, chunk := range chunks {
		row := Row{Number: i + 1}
		for j, seat := range chunk {
			cell := Cell{Seat: seat, Label: padLabel(seat.SeatNumber)}
			if j < aisleAfter {
				row.Left = append(row.Left, cell)
			} else {
				row.Right = append(row.Right, cell)
			}
		}
		rows = append(rows, row)
	}
	return Grid{Rows: rows}
}

// padLabel zero-pads numeric seat numbers to two digits for display.
func padLabel(number string) string {
	if len(number) == 1 {
		return fmt.Sprintf("0%s", number)
	}
	return number
}
