package heuristic

// Aho-Corasick automaton over folded UTF-8 bytes
// a fixed 256-way transition table per node keeps the scan loop branch-light

type acNode struct {
	trans  [256]int32 // next state or -1
	fail   int32
	output []int // term ids ending here
}

type automaton struct {
	nodes []acNode
}

func newNode() acNode {
	var n acNode
	for i := range n.trans {
		n.trans[i] = -1
	}
	return n
}

func newAutomaton() *automaton {
	return &automaton{nodes: []acNode{newNode()}}
}

// add inserts pat under id
func (a *automaton) add(pat string, id int) {
	if pat == "" {
		return
	}
	state := int32(0)
	for i := 0; i < len(pat); i++ {
		b := pat[i]
		nxt := a.nodes[state].trans[b]
		if nxt == -1 {
			nxt = int32(len(a.nodes))
			a.nodes[state].trans[b] = nxt
			a.nodes = append(a.nodes, newNode())
		}
		state = nxt
	}
	a.nodes[state].output = append(a.nodes[state].output, id)
}

// build computes failure links breadth first and merges outputs
func (a *automaton) build() {
	q := make([]int32, 0, len(a.nodes))
	for b := range 256 {
		if s := a.nodes[0].trans[b]; s != -1 {
			a.nodes[s].fail = 0
			q = append(q, s)
		}
	}
	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b := range 256 {
			s := a.nodes[r].trans[b]
			if s == -1 {
				continue
			}
			q = append(q, s)

			f := a.nodes[r].fail
			for f != 0 && a.nodes[f].trans[b] == -1 {
				f = a.nodes[f].fail
			}
			if nxt := a.nodes[f].trans[b]; nxt != -1 {
				a.nodes[s].fail = nxt
			} else {
				a.nodes[s].fail = 0
			}
			a.nodes[s].output = append(a.nodes[s].output, a.nodes[a.nodes[s].fail].output...)
		}
	}
}

// scan calls fn(end, id) for every match; end is exclusive
func (a *automaton) scan(text string, fn func(end, id int)) {
	state := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for state != 0 && a.nodes[state].trans[b] == -1 {
			state = a.nodes[state].fail
		}
		if nxt := a.nodes[state].trans[b]; nxt != -1 {
			state = nxt
		}
		for _, id := range a.nodes[state].output {
			fn(i+1, id)
		}
	}
}
