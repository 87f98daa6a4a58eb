// Package mmt implements the tree engine underneath the Merkle Merge Tree:
// perfect, leaf-sorted binary merkle trees held in a flat post-order layout,
// the merge operation that combines two equal height trees into one a level
// taller, and the inclusion proof kernel shared by the forest layer.
/*

A perfect tree of height 3 over the sorted leaves 1..8 looks like

	          d
	         / \
	        /   \
	       /     \
	      /       \
	     /         \
	    b           f
	   / \         / \
	  /   \       /   \
	 a     c     e     g
	/ \   / \   / \   / \
	1 2   3 4   5 6   7 8

and is stored as the post order traversal of its node digests

	1 2 a 3 4 c b 5 6 e 7 8 g f d

This single layout serves three purposes:

 1. It is the natural emit order of the bottom up stack builder, so trees
    can be written with strictly sequential IO as their leaves stream in.
 2. Two trees stored this way can be merged with a single sequential pass
    over each input: the leaves appear left to right, interleaved with
    interior digests at positions that are a pure function of the leaf
    ordinal.
 3. Concatenating the layouts of two trees whose leaf ranges do not
    interleave, and appending one digest, is the layout of their parent.

Navigation needs no pointers. A subtree of height h occupies a span of
2^(h+1)-1 digests whose last digest is the subtree root; the left child
span is the first half of the remainder and the right child span is the
second half. All search and proof operations descend spans with this
arithmetic.

Trees are immutable once built. The zero hashing primitive is anything
satisfying hash.Hash; every function that hashes takes the hasher as an
argument and resets it before use.
*/
package mmt
