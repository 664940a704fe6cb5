/*

The expand package replaces exercise directives in document text with the
contents of include files or with fixed label strings. You construct a
FileResolver, telling it where the include files live, and then an Expander
which scans the text for \exinput{...} and \exsetinput{...} directives and
for the bare \print... tokens and substitutes each one. Because an include
file may itself contain further directives the Expander repeats the whole
substitution over the text until a pass changes nothing, up to a fixed
limit of passes. Any directive that cannot be resolved is left in the text
exactly as written and a warning is issued; a missing include file is
warned about once per file and a missing include directory once per
resolver.

Alternatively a Resolver of your own can be given to the Expander and no
include directory is needed.

*/
package expand
