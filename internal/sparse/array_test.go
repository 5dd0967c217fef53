// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package sparse

import (
	"math/rand/v2"
	"testing"
)

func TestInsertGetDelete(t *testing.T) {
	t.Parallel()

	var a Array4096[string]

	if _, ok := a.Get(5); ok {
		t.Fatal("Get on empty array must miss")
	}

	if exists := a.InsertAt(5, "five"); exists {
		t.Fatal("first InsertAt must not report exists")
	}
	if exists := a.InsertAt(5, "FIVE"); !exists {
		t.Fatal("second InsertAt must report exists")
	}
	if v, ok := a.Get(5); !ok || v != "FIVE" {
		t.Fatalf("Get(5) = (%q, %v)", v, ok)
	}

	a.InsertAt(3, "three")
	a.InsertAt(4000, "big")
	if a.Len() != 3 {
		t.Fatalf("Len = %d, want 3", a.Len())
	}
	// Items is rank ordered
	if a.Items[0] != "three" || a.Items[1] != "FIVE" || a.Items[2] != "big" {
		t.Fatalf("Items order broken: %v", a.Items)
	}

	if v, ok := a.DeleteAt(5); !ok || v != "FIVE" {
		t.Fatalf("DeleteAt(5) = (%q, %v)", v, ok)
	}
	if _, ok := a.Get(5); ok {
		t.Fatal("deleted index must miss")
	}
	if a.Len() != 2 {
		t.Fatalf("Len after delete = %d, want 2", a.Len())
	}
}

func TestUpdateAt(t *testing.T) {
	t.Parallel()

	var a Array4096[int]

	v, existed := a.UpdateAt(7, func(old int, found bool) int {
		if found {
			t.Fatal("callback found on missing index")
		}
		return 1
	})
	if existed || v != 1 {
		t.Fatalf("UpdateAt insert = (%d, %v)", v, existed)
	}

	v, existed = a.UpdateAt(7, func(old int, found bool) int {
		if !found || old != 1 {
			t.Fatalf("callback got (%d, %v)", old, found)
		}
		return old + 1
	})
	if !existed || v != 2 {
		t.Fatalf("UpdateAt update = (%d, %v)", v, existed)
	}
}

func TestMustSetForbidden(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("MustSet on the coupled bitset must panic")
		}
	}()
	var a Array4096[int]
	a.MustSet(1)
}

func TestAgainstGoldMap(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(42, 42))

	var a Array4096[uint64]
	gold := map[uint]uint64{}

	for range 20_000 {
		i := uint(prng.IntN(4096))
		switch prng.IntN(3) {
		case 0:
			v := prng.Uint64()
			a.InsertAt(i, v)
			gold[i] = v
		case 1:
			a.DeleteAt(i)
			delete(gold, i)
		default:
			v, ok := a.Get(i)
			gv, gok := gold[i]
			if ok != gok || v != gv {
				t.Fatalf("Get(%d) = (%d, %v), gold (%d, %v)", i, v, ok, gv, gok)
			}
		}
	}
	if a.Len() != len(gold) {
		t.Fatalf("Len = %d, gold %d", a.Len(), len(gold))
	}

	if len(a.Items) > 0 {
		c := a.Copy()
		before := a.Items[0]
		c.Items[0] = before + 1
		if a.Items[0] != before {
			t.Fatal("Copy must not share the items slice")
		}
	}
}
