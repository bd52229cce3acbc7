package qrid

import (
	"github.com/privacybydesign/qrid/transport"
	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.StandardLogger()
	transport.Logger = Logger
}
