// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qrid implements an interactive zero-knowledge identification scheme based
// on quadratic residuosity, in the style of Feige, Fiat and Shamir. A Prover holding
// a square root x of the public value v = x^2 mod n convinces a Verifier of this
// knowledge without revealing x.
//
// Each round runs as follows, all arithmetic modulo n:
//
//	Prover                                   Verifier
//	u1 <- (Z/nZ)*, u2 = x * u1^-1
//	x1 = u1^2, x2 = u2^2       --- x1, x2 -->
//	                                         check x1 * x2 = v
//	                           <--   bit  ---  bit <- {0, 1}
//	r = u1 if bit = 0 else u2  ---   r    -->
//	                                         check r^2 = x1 or x2
//
// A prover that does not know x can prepare for at most one of the two challenges,
// so it survives a round with probability at most 1/2. A Session repeats the round
// k times (see Parameters), stopping at the first rejection, giving a soundness
// error of 2^-k.
//
// The Prover talks to the Session through a ProverEndpoint: either in-process
// (NewLocalEndpoint) or over a transport.Messenger (RemoteProver and ServeProver).
package qrid
