// Command qrid runs an identification session between a prover and a verifier in
// a single process, connected by an in-memory transport.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/privacybydesign/qrid"
	"github.com/privacybydesign/qrid/big"
	"github.com/privacybydesign/qrid/signed"
	"github.com/privacybydesign/qrid/transport/mocknet"
	"github.com/sirupsen/logrus"
)

const (
	verifierParty = 0
	proverParty   = 1
)

func main() {
	var (
		p         = flag.Int64("p", 61, "first prime factor of the modulus")
		q         = flag.Int64("q", 53, "second prime factor of the modulus")
		x         = flag.Int64("x", 17, "witness, a unit modulo p*q")
		keyPath   = flag.String("key", "", "read the private key from a JSON file instead of -p, -q and -x")
		rounds    = flag.Int("rounds", 0, "number of rounds (0 = derive from -soundness)")
		soundness = flag.Float64("soundness", 1e-6, "acceptable probability of accepting a cheating prover")
		batched   = flag.Bool("batched", false, "fix all commitments before issuing challenges")
		timeout   = flag.Duration("timeout", qrid.DefaultTimeout, "bound on each prover exchange")
		sign      = flag.Bool("sign", false, "print a signed receipt of the verdict")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logger := qrid.Logger
	if *verbose {
		logger.SetLevel(logrus.TraceLevel)
	}

	sk, err := loadKey(*keyPath, *p, *q, *x)
	if err != nil {
		logger.Fatalf("load key: %v", err)
	}
	params := qrid.DefaultParameters
	if *rounds > 0 {
		params.Rounds = *rounds
	} else if params, err = params.WithSoundness(*soundness); err != nil {
		logger.Fatalf("parameters: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"n":         sk.N,
		"v":         sk.PublicKey().V,
		"rounds":    params.Rounds,
		"soundness": params.SoundnessError(),
	}).Info("starting session")

	ctx := context.Background()
	var session *qrid.Session
	if *batched {
		session, err = batchSession(sk, params)
	} else {
		session, err = remoteSession(ctx, sk, params, *timeout)
	}
	if err != nil {
		logger.Fatalf("set up session: %v", err)
	}

	verdict, err := session.Run(ctx)
	if err != nil {
		logger.Fatalf("run session: %v", err)
	}
	logger.WithFields(logrus.Fields{"status": verdict.Status, "rounds": verdict.RoundsRun}).Info(verdict.String())

	if *sign {
		if err = printReceipt(session); err != nil {
			logger.Fatalf("receipt: %v", err)
		}
	}
	if !verdict.Accepted() {
		os.Exit(1)
	}
}

func loadKey(path string, p, q, x int64) (*qrid.PrivateKey, error) {
	if path != "" {
		return qrid.NewPrivateKeyFromFile(path)
	}
	return qrid.NewPrivateKeyFromPrimes(big.NewInt(p), big.NewInt(q), big.NewInt(x))
}

// remoteSession starts a prover serving over an in-memory network and returns a
// session talking to it.
func remoteSession(ctx context.Context, sk *qrid.PrivateKey, params qrid.Parameters, timeout time.Duration) (*qrid.Session, error) {
	prover, err := qrid.NewProver(sk, rand.Reader, params)
	if err != nil {
		return nil, err
	}
	network := mocknet.NewMockNetwork(2)
	go func() {
		if _, err := qrid.ServeProver(ctx, network[proverParty], verifierParty, prover); err != nil {
			qrid.Logger.Errorf("prover: %v", err)
		}
	}()

	endpoint := qrid.NewRemoteProver(network[verifierParty], proverParty)
	endpoint.Timeout = timeout
	return qrid.NewSession(sk.PublicKey(), endpoint, rand.Reader, params)
}

func batchSession(sk *qrid.PrivateKey, params qrid.Parameters) (*qrid.Session, error) {
	prover, err := qrid.NewBatchProver(sk, rand.Reader, params)
	if err != nil {
		return nil, err
	}
	return qrid.NewBatchSession(sk.PublicKey(), qrid.NewLocalBatchEndpoint(prover), rand.Reader, params)
}

func printReceipt(session *qrid.Session) error {
	receipt, err := session.Receipt()
	if err != nil {
		return err
	}
	key, err := signed.GenerateKey()
	if err != nil {
		return err
	}
	msg, err := qrid.SignReceipt(key, receipt)
	if err != nil {
		return err
	}
	pem, err := signed.MarshalPemPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}
	fmt.Printf("%s\nreceipt: %x\n", pem, []byte(msg))
	return nil
}
