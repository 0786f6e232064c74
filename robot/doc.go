// Package robot defines the contract between test code and an external robot
// scripting engine.
//
// An Engine prepares a script, lets client code join the scripted session and
// reports two scripts once the session finishes: the script the robot was
// asked to play (expected) and the script it actually observed (actual). A
// test passes when both are identical.
//
// Implementations live in the control (TCP control protocol against a running
// robot) and loopback (in-process, for tests) subpackages.
package robot
