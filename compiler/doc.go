/*

Building the block graph

IR Graph (ir, loaded by parse) ->
	partition ->
Blocks with node to block map ->
	connect ->
Blocks in reverse postorder with predecessors and successors ->
	probabilities ->
Blocks with relative frequencies ->
	loops ->
Natural loops, members and exits ->
	dominators ->
	postdominators ->
Control Flow Graph (cfg) ->
	format ->
Text dump

*/
package compiler
