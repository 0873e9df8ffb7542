package game

import (
	"errors"
	"testing"
)

func TestBody_PushPopAcrossWrap(t *testing.T) {
	b := newBody(0, 3)
	b.PushFront(1)
	b.PushFront(2)
	if b.PopBack() != 0 {
		t.Fatalf("tail should be 0")
	}
	b.PushFront(3)
	assertCells(t, b.Cells(), []int{3, 2, 1})
	if b.Head() != 3 || b.Tail() != 1 || b.At(1) != 2 {
		t.Fatalf("head=%d at1=%d tail=%d", b.Head(), b.At(1), b.Tail())
	}
}

func TestBody_GrowsPastCapacity(t *testing.T) {
	b := newBody(0, 1)
	for i := 1; i < 10; i++ {
		b.PushFront(i)
	}
	if b.Len() != 10 {
		t.Fatalf("len=%d want=10", b.Len())
	}
	assertCells(t, b.Cells(), []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0})

	c := b.clone()
	c.PopBack()
	if b.Len() != 10 || b.Tail() != 0 {
		t.Fatalf("clone shares storage")
	}
}

func TestDirection_Parse(t *testing.T) {
	cases := map[string]Direction{
		"up": Up, "ArrowDown": Down, "a": Left, " RIGHT ": Right, "k": Up,
	}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q)=%s,%v want %s", in, got, err, want)
		}
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
	for _, d := range Directions {
		if d.Opposite().Opposite() != d || d.Opposite() == d {
			t.Fatalf("bad opposite for %s", d)
		}
	}
}

func TestStatus_Text(t *testing.T) {
	cases := map[Status]string{
		statusUnset: "No Status",
		Played:      "Playing",
		Won:         "You have won!",
		Lost:        "You have lost!",
	}
	for s, want := range cases {
		if s.Text() != want {
			t.Fatalf("%s text=%q want=%q", s, s.Text(), want)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("won")); err != nil || s != Won {
		t.Fatalf("unmarshal won: %s %v", s, err)
	}
}
