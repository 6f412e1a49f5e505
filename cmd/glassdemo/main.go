// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package main

import (
	"log"

	"github.com/OctopusTakopi/glass"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	g := glass.New()

	g.Insert(123, 999999999999)
	g.Insert(456, 888888888888)

	if val, ok := g.Get(123); ok {
		log.Printf("Found: %d", val)
	}

	removed, ok := g.Remove(123)
	log.Printf("Removed: %d, ok: %v", removed, ok)

	if _, ok := g.Get(123); !ok {
		log.Printf("Get after remove: none")
	}

	if val, ok := g.Get(456); ok {
		log.Printf("Found: %d", val)
	}

	if minKey, minVal, ok := g.Min(); ok {
		log.Printf("Min: %d -> %d", minKey, minVal)
	}

	if maxKey, maxVal, ok := g.Max(); ok {
		log.Printf("Max: %d -> %d", maxKey, maxVal)
	}

	g2 := glass.New()
	g2.Insert(10, 500)
	g2.Insert(20, 600)
	g2.Insert(30, 700)
	g2.Insert(40, 800)

	cost := g2.ComputeBuyCost(1000)
	log.Printf("cost: %d", cost)

	cost = g2.BuyShares(200)
	log.Printf("cost: %d", cost)
}
