// Package lockorder guards the entity and factor containers with two
// independent reader/writer locks that are always acquired entities first.
package lockorder

import (
	"fmt"
	"sync"
)

// Mode selects which locks a critical section holds.
type Mode uint8

const (
	EntitiesRead Mode = 1 << iota
	EntitiesWrite
	FactorsRead
	FactorsWrite
)

func (m Mode) String() string {
	var e, f string
	switch {
	case m&EntitiesWrite != 0:
		e = "entities:w"
	case m&EntitiesRead != 0:
		e = "entities:r"
	}
	switch {
	case m&FactorsWrite != 0:
		f = "factors:w"
	case m&FactorsRead != 0:
		f = "factors:r"
	}
	switch {
	case e != "" && f != "":
		return e + "+" + f
	case e != "":
		return e
	case f != "":
		return f
	}
	return "none"
}

func (m Mode) validate() {
	if m == 0 {
		panic("lockorder: empty mode")
	}
	if m&EntitiesRead != 0 && m&EntitiesWrite != 0 {
		panic(fmt.Sprintf("lockorder: mode %08b requests read and write on entities", m))
	}
	if m&FactorsRead != 0 && m&FactorsWrite != 0 {
		panic(fmt.Sprintf("lockorder: mode %08b requests read and write on factors", m))
	}
}

// Guard owns the two locks. The zero value is ready to use.
type Guard struct {
	entities sync.RWMutex
	factors  sync.RWMutex
}

// Lock acquires the locks selected by m, entities before factors, and
// returns a function releasing them in reverse order.
func (g *Guard) Lock(m Mode) (unlock func()) {
	m.validate()

	switch {
	case m&EntitiesWrite != 0:
		g.entities.Lock()
	case m&EntitiesRead != 0:
		g.entities.RLock()
	}
	switch {
	case m&FactorsWrite != 0:
		g.factors.Lock()
	case m&FactorsRead != 0:
		g.factors.RLock()
	}

	return func() {
		switch {
		case m&FactorsWrite != 0:
			g.factors.Unlock()
		case m&FactorsRead != 0:
			g.factors.RUnlock()
		}
		switch {
		case m&EntitiesWrite != 0:
			g.entities.Unlock()
		case m&EntitiesRead != 0:
			g.entities.RUnlock()
		}
	}
}

// Do runs fn while holding the locks selected by m.
func (g *Guard) Do(m Mode, fn func() error) error {
	unlock := g.Lock(m)
	defer unlock()
	return fn()
}
