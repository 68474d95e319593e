/*
Copyright © 2019 the soilcn authors.
This file is part of soilcn.

soilcn is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

soilcn is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with soilcn.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hash computes stable keys for parameter sets so that organic
// matter cohorts created from identical inputs can be recognised and
// merged.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a hash key for the combination of the specified objects.
// Equal objects give equal keys regardless of pointer identity.
func Key(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		write(h, o)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func write(h hash.Hash, o interface{}) {
	if s, ok := o.(fmt.Stringer); ok {
		fmt.Fprint(h, s.String())
		return
	}
	// If gob fails (e.g., there are NaN values) use spew instead.
	if err := gob.NewEncoder(h).Encode(o); err != nil {
		printer.Fprintf(h, "%#v", o)
	}
}
