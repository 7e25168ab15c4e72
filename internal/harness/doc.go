// Package harness provides conformance testing for query translation.
//
// The harness loads a field catalog, translates a list of queries and
// checks each translation against assertions. Outcomes can be snapshotted
// as golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: ../catalogs/sensors.cue
//	strict: false
//	cases:
//	  - name: or_splits
//	    query: sensors.Where(s => s.Name == "a" || s.Id > 2)
//	    assertions:
//	      - type: sets
//	        sets: ['Name eq "a"', 'Id gt "2"']
//	      - type: illegal
//	        value: true
//	  - name: strict_range
//	    query: sensors.Where(s => s.Priority > 20)
//	    strict: true
//	    assertions:
//	      - type: error
//	        code: INVALID_FILTER
//	        hint: "accepted range: [0, 10]"
//
// # Assertion Types
//
//   - sets: exact filter sets, in order
//   - set_count: number of filter sets
//   - illegal: the illegality flag
//   - residual: the printed residual query
//   - local: the methods left for local evaluation
//   - sort: the pushed ordering, "Field" or "Field desc"
//   - paging: the pushed skip and limit
//   - columns: the column restriction
//   - error: the translation error code and hint
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/basics.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    log.Println(result.Summary())
//	}
package harness
