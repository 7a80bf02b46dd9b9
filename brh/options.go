// SPDX-License-Identifier: Unlicense OR MIT

package brh

import "github.com/ey6es/phantasml-sub002/pbrrn"

// Level describes the PBRRN construction options shared by every node at
// one depth of the tree, plus that depth's edge-strip widths connecting a
// node to its parent (spec §6: "BRH adds { parentInputBits:int=0,
// parentOutputBits:int=0 } per level"). The root level's ParentInputBits
// and ParentOutputBits are ignored, since the root has no parent.
type Level struct {
	pbrrn.Options
	ParentInputBits  int
	ParentOutputBits int
}
