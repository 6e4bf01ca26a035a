// Package classify selects registry records by activity description and
// activity code.
//
// A record is selected when its normalized description matches an include
// pattern and no exclude keyword, or when its code starts with a whitelisted
// prefix. Both subsets are computed independently and then concatenated with
// duplicates removed, so a record satisfying both paths is written once.
//
// Example usage:
//
//	c, err := classify.Compile(classify.DefaultRules())
//	if err != nil {
//		return err
//	}
//	res, err := c.Classify(table, classify.Columns{
//		Description: config.ColumnActivity,
//		Code:        config.ColumnCIIU,
//	})
package classify
