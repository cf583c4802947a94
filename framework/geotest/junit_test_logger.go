package geotest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
)

// JUnitTestLogger writes a JUnit XML report when EndLog is called. Each top-level test group
// becomes a <testsuite>, and every test below it a <testcase> whose classname is the group.
type JUnitTestLogger struct {
	filePath   string
	properties []jUnitXMLProperty
	started    time.Time
	order      []TestID
	tests      map[string]*jUnitTestStatus
	lock       sync.Mutex
}

type jUnitTestStatus struct {
	failures    []error
	skipped     *string
	nonCritical bool
	output      string
	duration    time.Duration
}

// The XML schema follows what CI servers accept from github.com/jstemmer/go-junit-report.

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Name       string             `xml:"name,attr"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Timestamp  string             `xml:"timestamp,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName   xml.Name         `xml:"testcase"`
	Classname string           `xml:"classname,attr"`
	Name      string           `xml:"name,attr"`
	Time      string           `xml:"time,attr"`
	Skipped   *jUnitXMLSkipped `xml:"skipped,omitempty"`
	Failure   *jUnitXMLFailure `xml:"failure,omitempty"`
	SystemOut string           `xml:"system-out,omitempty"`
}

type jUnitXMLSkipped struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitTestLogger creates a JUnitTestLogger. targetInfo identifies the deployment that was
// tested; it and the filters are recorded as properties of every suite.
func NewJUnitTestLogger(
	filePath string,
	targetInfo string,
	filters RegexFilters,
) *JUnitTestLogger {
	j := &JUnitTestLogger{
		filePath: filePath,
		started:  time.Now(),
		tests:    make(map[string]*jUnitTestStatus),
	}
	j.AddProperty("tests.target", targetInfo)
	j.AddProperty("tests.filter.mustMatch", filters.MustMatch.String())
	j.AddProperty("tests.filter.mustNotMatch", filters.MustNotMatch.String())
	return j
}

// AddProperty records another name/value pair in every suite of the report.
func (j *JUnitTestLogger) AddProperty(name, value string) {
	j.lock.Lock()
	j.properties = append(j.properties, jUnitXMLProperty{Name: name, Value: value})
	j.lock.Unlock()
}

// FilePath is where EndLog writes the report.
func (j *JUnitTestLogger) FilePath() string { return j.filePath }

func (j *JUnitTestLogger) status(id TestID) *jUnitTestStatus {
	s := j.tests[id.String()]
	if s == nil {
		s = &jUnitTestStatus{}
		j.tests[id.String()] = s
		j.order = append(j.order, id)
	}
	return s
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.lock.Lock()
	j.status(id)
	j.lock.Unlock()
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.lock.Lock()
	s := j.status(id)
	s.failures = append(s.failures, err)
	j.lock.Unlock()
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	s := j.status(id)
	s.output = debugOutput.ToString("")
	s.duration = result.Duration
	s.nonCritical = result.NonCritical
	j.lock.Unlock()
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.lock.Lock()
	j.status(id).skipped = &reason
	j.lock.Unlock()
}

func (j *JUnitTestLogger) EndLog(_ Results) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	var doc jUnitXMLDocument
	suites := make(map[string]*jUnitXMLTestSuite)
	var durations = make(map[string]time.Duration)
	for _, id := range j.order {
		if len(id) == 0 {
			continue
		}
		group := id[0]
		suite := suites[group]
		if suite == nil {
			doc.Suites = append(doc.Suites, jUnitXMLTestSuite{
				Name:       "parsemap contract tests: " + group,
				Timestamp:  j.started.UTC().Format(time.RFC3339),
				Properties: j.properties,
			})
			suite = &doc.Suites[len(doc.Suites)-1]
			suites[group] = suite
		}
		s := j.tests[id.String()]
		testCase := j.testCase(id, s)
		suite.Tests++
		switch {
		case testCase.Failure != nil:
			suite.Failures++
		case testCase.Skipped != nil:
			suite.Skipped++
		}
		if len(id) == 1 {
			// a group's own duration already includes its subtests
			durations[group] = s.duration
		}
		suite.TestCases = append(suite.TestCases, testCase)
	}
	for i := range doc.Suites {
		doc.Suites[i].Time = jUnitDurationString(durations[doc.Suites[i].TestCases[0].Classname])
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), append(data, '\n')...)
	return os.WriteFile(j.filePath, data, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) testCase(id TestID, s *jUnitTestStatus) jUnitXMLTestCase {
	testCase := jUnitXMLTestCase{
		Classname: id[0],
		Name:      id.String(),
		Time:      jUnitDurationString(s.duration),
	}
	if s.skipped != nil {
		testCase.Skipped = &jUnitXMLSkipped{Message: *s.skipped}
		return testCase
	}
	if len(s.failures) == 0 {
		return testCase
	}
	messages := make([]string, 0, len(s.failures))
	for _, e := range s.failures {
		message := e.Error()
		if es, ok := e.(ErrorWithStacktrace); ok {
			message += "\n  Stacktrace:"
			for _, frame := range es.Stacktrace {
				message += "\n    " + frame.String()
			}
		}
		messages = append(messages, message)
	}
	failureType := "failure"
	if s.nonCritical {
		testCase.Name += " (non-critical)"
		failureType = "non-critical failure"
	}
	testCase.Failure = &jUnitXMLFailure{
		Message:  strings.Join(messages, "\n"),
		Type:     failureType,
		Contents: s.output,
	}
	return testCase
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
