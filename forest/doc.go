// Package forest maintains the canonical Merkle Merge Tree forest: an
// ordered run of perfect trees with strictly decreasing heights whose sizes
// partition the multiset cardinality by powers of two, exactly as a binary
// counter partitions a count by set bits.
/*
Inserting wraps the element as a height zero stub and carry-merges while the
two rightmost trees share a height:

	cardinality 11 = 0b1011          after one more insert, 12 = 0b1100

	  T(3)    T(1)  T(0)               T(3)      T(2)
	 8 leaves 2     1         ->      8 leaves  4 leaves

The forest shape is a function of cardinality alone, never of the element
values, so adversarial input cannot degrade the structure. The price is that
leaves are only sorted within each subtree; subtrees themselves are ordered
by size (equivalently by insertion epoch). Proofs account for this:
inclusion proves membership in one subtree plus the peer roots, exclusion
proves absence from every subtree independently.

The sole public commitment is the forest root, the domain separated hash of
the subtree roots listed tallest first.

Forests are persistent values: Insert and MergeWith return a new forest that
shares every unchanged subtree with its parent, so snapshots are free and a
reader can keep proving against an old version while the writer advances.
*/
package forest
